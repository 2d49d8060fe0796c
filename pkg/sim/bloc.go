package sim

// ShootingBloc is a scheduled batch of scenes sharing production settings,
// on-set policies and a shared cost pool.
type ShootingBloc struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`

	// ProductionSettings maps a category (e.g. "Camera Setup") to the
	// selected tier name within that category.
	ProductionSettings map[string]string `json:"production_settings,omitempty"`
	ActivePolicies     []string          `json:"active_policies,omitempty"`

	SceneIDs       []int64 `json:"scene_ids,omitempty"`
	ProductionCost int64   `json:"production_cost,omitempty"`

	Week int `json:"week"`
	Year int `json:"year"`
}

// PolicyActive reports whether the named policy is active on the bloc.
func (b *ShootingBloc) PolicyActive(id string) bool {
	for _, p := range b.ActivePolicies {
		if p == id {
			return true
		}
	}
	return false
}

// CostPerScene spreads the bloc production cost across its scenes.
func (b *ShootingBloc) CostPerScene() float64 {
	if len(b.SceneIDs) == 0 {
		return float64(b.ProductionCost)
	}
	return float64(b.ProductionCost) / float64(len(b.SceneIDs))
}
