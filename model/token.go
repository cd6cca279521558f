package model

import "strings"

// TokenType identifies the asset a wallet, commission or claim is denominated in
type TokenType string

const (
	TokenUSDT TokenType = "USDT"
	TokenUSDC TokenType = "USDC"
	TokenETH  TokenType = "ETH"
	TokenSOL  TokenType = "SOL"
	TokenBTC  TokenType = "BTC"
)

// DefaultTokens is the token set used when none is configured
var DefaultTokens = []TokenType{TokenUSDT, TokenUSDC, TokenETH, TokenSOL, TokenBTC}

func (t TokenType) String() string {
	return string(t)
}

// TokenSet is the closed set of tokens the service accepts
type TokenSet struct {
	list  []TokenType
	index map[TokenType]struct{}
}

// NewTokenSet builds a token set from configured symbols. Symbols are upper cased and duplicates dropped.
func NewTokenSet(symbols []string) *TokenSet {
	set := &TokenSet{index: map[TokenType]struct{}{}}
	if len(symbols) == 0 {
		for _, token := range DefaultTokens {
			symbols = append(symbols, token.String())
		}
	}
	for _, symbol := range symbols {
		token := TokenType(strings.ToUpper(strings.TrimSpace(symbol)))
		if token == "" {
			continue
		}
		if _, ok := set.index[token]; ok {
			continue
		}
		set.index[token] = struct{}{}
		set.list = append(set.list, token)
	}
	return set
}

// Has reports whether the token is part of the set
func (s *TokenSet) Has(token TokenType) bool {
	_, ok := s.index[token]
	return ok
}

// List returns the tokens in configuration order
func (s *TokenSet) List() []TokenType {
	out := make([]TokenType, len(s.list))
	copy(out, s.list)
	return out
}
