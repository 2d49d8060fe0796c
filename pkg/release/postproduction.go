package release

import (
	"fmt"
	"log/slog"

	"github.com/studiosim/studio-engine/pkg/sim"
	"github.com/studiosim/studio-engine/pkg/tags"
)

// PostProduction rescales a shot scene's quality numbers when editing
// completes. It multiplies the values in place and never recomputes them
// from performer stats.
type PostProduction struct {
	lib *tags.Library
	log *slog.Logger
}

// NewPostProduction builds the post-production step.
func NewPostProduction(lib *tags.Library, log *slog.Logger) *PostProduction {
	return &PostProduction{lib: lib, log: log}
}

// Apply rescales the scene's tag qualities and performer contributions by
// the editing tier's modifier, including any synergy bonus for the bloc's
// production settings. Returns the total multiplier applied.
func (p *PostProduction) Apply(scene *sim.Scene, bloc *sim.ShootingBloc) (float64, error) {
	if scene.EditingTierID == "" {
		return 1, nil
	}
	tier, ok := p.lib.EditingTier(scene.EditingTierID)
	if !ok {
		return 1, fmt.Errorf("scene %d: unknown editing tier %q", scene.ID, scene.EditingTierID)
	}

	mod := tier.BaseQualityModifier
	if mod == 0 {
		mod = 1
	}
	if bloc != nil {
		for category, tierName := range bloc.ProductionSettings {
			if synergy, has := tier.SynergyMods[category+":"+tierName]; has {
				mod *= synergy
			}
		}
	}

	for tag := range scene.TagQualities {
		scene.TagQualities[tag] *= mod
	}
	for _, keys := range scene.PerformerContributions {
		for key := range keys {
			keys[key] *= mod
		}
	}
	scene.RevenueModifierDetails = append(scene.RevenueModifierDetails,
		fmt.Sprintf("%s editing x%.2f", tier.Name, mod))
	return mod, nil
}
