package model

// UpdateCommissionStructureRequest changes the commission overrides of a user.
// Nil fields are left untouched.
type UpdateCommissionStructureRequest struct {
	IsKOL            *bool             `json:"isKOL"`
	WaivedFees       *bool             `json:"waivedFees"`
	DirectCommission *float64          `json:"directCommission"`
	LevelCommissions *LevelCommissions `json:"levelCommissions"`
	CashbackPercent  *float64          `json:"cashbackPercent"`
	FeeTier          *float64          `json:"feeTier"`
}

// Apply merges the request into the current structure and returns the result
func (r *UpdateCommissionStructureRequest) Apply(current *CustomCommissionStructure) *CustomCommissionStructure {
	next := CustomCommissionStructure{}
	if current != nil {
		next = *current
		if current.LevelCommissions != nil {
			levels := *current.LevelCommissions
			next.LevelCommissions = &levels
		}
	}
	if r.IsKOL != nil {
		next.IsKOL = *r.IsKOL
	}
	if r.WaivedFees != nil {
		next.WaivedFees = *r.WaivedFees
	}
	if r.DirectCommission != nil {
		next.DirectCommission = r.DirectCommission
	}
	if r.LevelCommissions != nil {
		if next.LevelCommissions == nil {
			next.LevelCommissions = &LevelCommissions{}
		}
		if r.LevelCommissions.Level2 != nil {
			next.LevelCommissions.Level2 = r.LevelCommissions.Level2
		}
		if r.LevelCommissions.Level3 != nil {
			next.LevelCommissions.Level3 = r.LevelCommissions.Level3
		}
	}
	return &next
}

// Rates lists every rate carried by the request so they can be validated together
func (r *UpdateCommissionStructureRequest) Rates() map[string]*float64 {
	rates := map[string]*float64{
		"directCommission": r.DirectCommission,
		"cashbackPercent":  r.CashbackPercent,
		"feeTier":          r.FeeTier,
	}
	if r.LevelCommissions != nil {
		rates["levelCommissions.level2"] = r.LevelCommissions.Level2
		rates["levelCommissions.level3"] = r.LevelCommissions.Level3
	}
	return rates
}
