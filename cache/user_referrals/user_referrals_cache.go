package user_referrals

import (
	"sync"

	"github.com/qgatssdev/nika/model"
)

// Cache keeps the referral graph in memory in both directions.
// referrers maps a user to its upward chain, referees maps a user to the users below it.
type Cache struct {
	lock      *sync.RWMutex
	referrers map[uint64]*chain
	referees  map[uint64]*model.ReferralTree
}

type chain struct {
	L1 uint64
	L2 uint64
	L3 uint64
}

var cache *Cache

func init() {
	cache = newCache()
}

func newCache() *Cache {
	return &Cache{
		lock:      &sync.RWMutex{},
		referrers: map[uint64]*chain{},
		referees:  map[uint64]*model.ReferralTree{},
	}
}

// GetReferrers returns the upward chain of a user. Missing levels are left empty.
func GetReferrers(userID uint64) *model.ReferralTree {
	tree := &model.ReferralTree{L1: []uint64{}, L2: []uint64{}, L3: []uint64{}}
	cache.lock.RLock()
	defer cache.lock.RUnlock()
	up, ok := cache.referrers[userID]
	if !ok {
		return tree
	}
	if up.L1 != 0 {
		tree.L1 = append(tree.L1, up.L1)
	}
	if up.L2 != 0 {
		tree.L2 = append(tree.L2, up.L2)
	}
	if up.L3 != 0 {
		tree.L3 = append(tree.L3, up.L3)
	}
	return tree
}

// GetReferees returns a copy of the users referred by userID grouped by level
func GetReferees(userID uint64) *model.ReferralTree {
	tree := &model.ReferralTree{L1: []uint64{}, L2: []uint64{}, L3: []uint64{}}
	cache.lock.RLock()
	defer cache.lock.RUnlock()
	down, ok := cache.referees[userID]
	if !ok {
		return tree
	}
	tree.L1 = append(tree.L1, down.L1...)
	tree.L2 = append(tree.L2, down.L2...)
	tree.L3 = append(tree.L3, down.L3...)
	return tree
}

// GetReferrer returns the direct referrer of a user, or 0
func GetReferrer(userID uint64) uint64 {
	cache.lock.RLock()
	defer cache.lock.RUnlock()
	if up, ok := cache.referrers[userID]; ok {
		return up.L1
	}
	return 0
}

// AddReferralUser links userID below referrerID and propagates it to the referrer's own chain
func AddReferralUser(referrerID, userID uint64) {
	cache.lock.Lock()
	defer cache.lock.Unlock()
	cache.add(referrerID, userID)
}

func (c *Cache) add(referrerID, userID uint64) {
	up := &chain{L1: referrerID}
	if parent, ok := c.referrers[referrerID]; ok {
		up.L2 = parent.L1
		up.L3 = parent.L2
	}
	c.referrers[userID] = up
	c.link(up, userID)

	// users already below userID gain the new ancestors
	below, ok := c.referees[userID]
	if !ok {
		return
	}
	for _, child := range below.L1 {
		if childChain, ok := c.referrers[child]; ok {
			childChain.L2, childChain.L3 = up.L1, up.L2
			c.link(&chain{L2: up.L1, L3: up.L2}, child)
		}
	}
	for _, grandchild := range below.L2 {
		if grandchildChain, ok := c.referrers[grandchild]; ok {
			grandchildChain.L3 = up.L1
			c.link(&chain{L3: up.L1}, grandchild)
		}
	}
}

func (c *Cache) link(up *chain, userID uint64) {
	for level, ancestor := range []uint64{up.L1, up.L2, up.L3} {
		if ancestor == 0 {
			continue
		}
		down := c.referees[ancestor]
		if down == nil {
			down = &model.ReferralTree{}
			c.referees[ancestor] = down
		}
		switch level {
		case 0:
			down.L1 = append(down.L1, userID)
		case 1:
			down.L2 = append(down.L2, userID)
		case 2:
			down.L3 = append(down.L3, userID)
		}
	}
}

// SetAll rebuilds the cache from the persisted referral links
func SetAll(links []*model.Referral) {
	parents := make(map[uint64]uint64, len(links))
	for _, link := range links {
		parents[link.RefereeID] = link.ReferrerID
	}

	next := newCache()
	for _, link := range links {
		up := &chain{L1: link.ReferrerID}
		if l2, ok := parents[up.L1]; ok && l2 != link.RefereeID {
			up.L2 = l2
			if l3, ok := parents[l2]; ok && l3 != link.RefereeID && l3 != up.L1 {
				up.L3 = l3
			}
		}
		next.referrers[link.RefereeID] = up
		next.link(up, link.RefereeID)
	}

	cache.lock.Lock()
	cache.referrers = next.referrers
	cache.referees = next.referees
	cache.lock.Unlock()
}
