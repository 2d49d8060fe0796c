// Package worker sequences the weekly simulation pass: shooting scheduled
// scenes, pausing on interactive events, applying calculator deltas
// through storage, and running the weekly talent and market updates.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/studiosim/studio-engine/pkg/event"
	"github.com/studiosim/studio-engine/pkg/market"
	"github.com/studiosim/studio-engine/pkg/release"
	"github.com/studiosim/studio-engine/pkg/rng"
	"github.com/studiosim/studio-engine/pkg/shoot"
	"github.com/studiosim/studio-engine/pkg/sim"
	"github.com/studiosim/studio-engine/pkg/storage"
	"github.com/studiosim/studio-engine/pkg/tags"
)

// WeekReport summarizes one week advance. A non-nil Pending means the
// advance paused on an interactive event and must be resumed with the
// player's choice before the week completes.
type WeekReport struct {
	Week int `json:"week"`
	Year int `json:"year"`

	ShotScenes      []int64 `json:"shot_scenes,omitempty"`
	CancelledScenes []int64 `json:"cancelled_scenes,omitempty"`
	ReleasedScenes  []int64 `json:"released_scenes,omitempty"`
	Revenue         int64   `json:"revenue,omitempty"`

	Messages []string `json:"messages,omitempty"`

	Pending      *event.Pending `json:"pending,omitempty"`
	PendingEvent *tags.EventDef `json:"pending_event,omitempty"`
}

// Paused reports whether the advance is waiting on a player choice.
func (r *WeekReport) Paused() bool { return r.Pending != nil }

// WeekProcessor runs week advances against storage. All randomness flows
// through the single source so a seeded run replays exactly.
type WeekProcessor struct {
	store    storage.Storage
	lib      *tags.Library
	resolver *market.Resolver
	tuning   sim.Tuning
	rand     *rng.Source
	log      *slog.Logger

	outcomes *shoot.OutcomeCalculator
	quality  *shoot.QualityCalculator
	autotag  *shoot.AutoTagAnalyzer
	revenue  *release.RevenueCalculator
	post     *release.PostProduction
	events   *event.Engine
}

// NewWeekProcessor wires the calculators around storage.
func NewWeekProcessor(store storage.Storage, lib *tags.Library, resolver *market.Resolver, tuning sim.Tuning, r *rng.Source, log *slog.Logger) *WeekProcessor {
	return &WeekProcessor{
		store:    store,
		lib:      lib,
		resolver: resolver,
		tuning:   tuning,
		rand:     r,
		log:      log,
		outcomes: shoot.NewOutcomeCalculator(lib, tuning.Outcome, tuning.Weekly.WeeksPerYear, log),
		quality:  shoot.NewQualityCalculator(lib, tuning.Quality, tuning.Outcome, log),
		autotag:  shoot.NewAutoTagAnalyzer(lib, log),
		revenue:  release.NewRevenueCalculator(lib, resolver, tuning.Revenue, log),
		post:     release.NewPostProduction(lib, log),
		events:   event.NewEngine(lib, tuning.Events, log),
	}
}

// AdvanceWeek shoots every scene scheduled for the current week, then runs
// releases and weekly updates and moves the calendar forward. If a shoot
// triggers an interactive event the advance stops with a pending token and
// nothing past that scene happens until Resume.
func (p *WeekProcessor) AdvanceWeek(ctx context.Context) (*WeekReport, error) {
	week, year, err := p.calendar(ctx)
	if err != nil {
		return nil, err
	}
	report := &WeekReport{Week: week, Year: year}

	sceneIDs, err := p.scheduledScenes(ctx, week, year)
	if err != nil {
		return nil, err
	}

	if err := p.runScenes(ctx, report, sceneIDs); err != nil {
		return nil, err
	}
	if report.Paused() {
		return report, nil
	}

	if err := p.finishWeek(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// Resume consumes a pending token exactly once: it resolves the player's
// choice, then either pauses again on a chained event or picks the week
// advance back up where it stopped.
func (p *WeekProcessor) Resume(ctx context.Context, token uuid.UUID, choiceID string) (*WeekReport, error) {
	pending, err := p.store.LoadPendingEvent(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("loading pending event: %w", err)
	}
	if err := p.store.DeletePendingEvent(ctx, token); err != nil {
		return nil, fmt.Errorf("consuming pending event: %w", err)
	}

	report := &WeekReport{Week: pending.Week, Year: pending.Year}

	scene, bloc, cast, err := p.loadShoot(ctx, pending.SceneID)
	if err != nil {
		return nil, err
	}

	evtCtx := &event.Context{Scene: scene, Bloc: bloc, Cast: cast, Talent: cast[pending.TalentID]}
	res := p.events.ResolveChoice(pending.EventID, choiceID, evtCtx, p.rand)

	mods := pending.Mods
	if mods == nil {
		mods = sim.NewShootModifiers()
	}
	mergeMods(mods, res.Mods)

	if res.CostDelta != 0 {
		if _, err := p.store.IncrCounter(ctx, storage.CounterMoney, -res.CostDelta); err != nil {
			return nil, err
		}
	}
	report.Messages = append(report.Messages, res.Messages...)

	if res.ChainEventID != "" {
		chained, ok := p.lib.Event(res.ChainEventID)
		if !ok {
			p.log.Error("chained event not found, continuing shoot", "event_id", res.ChainEventID)
		} else {
			next := &event.Pending{
				Token:             uuid.New(),
				Week:              pending.Week,
				Year:              pending.Year,
				SceneID:           pending.SceneID,
				BlocID:            pending.BlocID,
				EventID:           chained.ID,
				TalentID:          pending.TalentID,
				RemainingSceneIDs: pending.RemainingSceneIDs,
				Mods:              mods,
			}
			if err := p.store.SavePendingEvent(ctx, next); err != nil {
				return nil, err
			}
			report.Pending = next
			report.PendingEvent = &chained
			return report, nil
		}
	}

	remaining := pending.RemainingSceneIDs
	if res.CancelScene {
		report.CancelledScenes = append(report.CancelledScenes, scene.ID)
		if err := p.store.DeleteScene(ctx, scene.ID); err != nil {
			return nil, err
		}
		if len(remaining) > 0 {
			remaining = remaining[1:]
		}
		if err := p.runScenes(ctx, report, remaining); err != nil {
			return nil, err
		}
	} else {
		if err := p.completeShoot(ctx, report, scene, bloc, cast, mods); err != nil {
			return nil, err
		}
		if len(remaining) > 0 {
			remaining = remaining[1:]
		}
		if err := p.runScenes(ctx, report, remaining); err != nil {
			return nil, err
		}
	}
	if report.Paused() {
		return report, nil
	}

	if err := p.finishWeek(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// runScenes shoots scenes in order, pausing the advance on the first
// scene whose event roll fires.
func (p *WeekProcessor) runScenes(ctx context.Context, report *WeekReport, sceneIDs []int64) error {
	for i, id := range sceneIDs {
		scene, bloc, cast, err := p.loadShoot(ctx, id)
		if err != nil {
			p.log.Warn("skipping unloadable scheduled scene", "scene_id", id, "error", err)
			continue
		}

		if triggered := p.events.CheckForShootEvent(scene, bloc, cast, p.rand); triggered != nil {
			pending := event.NewPending(triggered, scene.ID, scene.BlocID, report.Week, report.Year, sceneIDs[i:])
			if err := p.store.SavePendingEvent(ctx, pending); err != nil {
				return err
			}
			report.Pending = pending
			report.PendingEvent = &triggered.Event
			return nil
		}

		if err := p.completeShoot(ctx, report, scene, bloc, cast, sim.NewShootModifiers()); err != nil {
			return err
		}
	}
	return nil
}

// completeShoot runs the full shoot pipeline on one scene and persists
// the results: chemistry, auto tags, outcomes, quality, status.
func (p *WeekProcessor) completeShoot(ctx context.Context, report *WeekReport, scene *sim.Scene, bloc *sim.ShootingBloc, cast map[int64]*sim.Talent, mods *sim.ShootModifiers) error {
	week, year := report.Week, report.Year

	for _, d := range shoot.DiscoverChemistry(scene, cast, p.lib, p.tuning.Chemistry, p.rand, p.log) {
		p.applyChemistry(cast, d)
		if err := p.saveTalents(ctx, cast, d.TalentA, d.TalentB); err != nil {
			return err
		}
	}

	for _, tag := range p.autotag.Discover(scene, cast) {
		if !containsString(scene.AutoTags, tag) {
			scene.AutoTags = append(scene.AutoTags, tag)
		}
	}

	outcomes := p.outcomes.TalentOutcomes(scene, cast, week, year)
	scene.PerformerStaminaCosts = make(map[int64]float64, len(outcomes))
	for _, out := range outcomes {
		scene.PerformerStaminaCosts[out.TalentID] = out.StaminaCost
		talent := cast[out.TalentID]
		p.applyOutcome(talent, out)
		if err := p.store.SaveTalent(ctx, talent); err != nil {
			return err
		}
	}

	quality := p.quality.Quality(scene, cast, mods, bloc)
	scene.TagQualities = quality.TagQualities
	scene.PerformerContributions = quality.PerformerContributions

	if err := scene.Transition(sim.StatusShot); err != nil {
		return err
	}
	if err := scene.Transition(sim.StatusInEditing); err != nil {
		return err
	}
	if scene.EditingTierID != "" {
		if tier, ok := p.lib.EditingTier(scene.EditingTierID); ok {
			scene.EditingWeeksRemaining = tier.Weeks
			if _, err := p.store.IncrCounter(ctx, storage.CounterMoney, -int64(tier.Cost)); err != nil {
				return err
			}
		}
	}
	if err := p.store.SaveScene(ctx, scene); err != nil {
		return err
	}

	report.ShotScenes = append(report.ShotScenes, scene.ID)
	return nil
}

// finishWeek runs releases and the weekly talent and market updates, then
// advances the calendar.
func (p *WeekProcessor) finishWeek(ctx context.Context, report *WeekReport) error {
	if err := p.processReleases(ctx, report); err != nil {
		return err
	}
	if err := p.weeklyTalentUpdates(ctx, report.Week, report.Year); err != nil {
		return err
	}
	if err := p.weeklyMarketRecovery(ctx); err != nil {
		return err
	}
	return p.advanceCalendar(ctx, report)
}

// processReleases counts down editing scenes and releases the ready ones.
func (p *WeekProcessor) processReleases(ctx context.Context, report *WeekReport) error {
	scenes, err := p.store.ListScenes(ctx)
	if err != nil {
		return err
	}
	sort.Slice(scenes, func(i, j int) bool { return scenes[i].ID < scenes[j].ID })

	for _, scene := range scenes {
		switch scene.Status {
		case sim.StatusInEditing:
			scene.EditingWeeksRemaining--
			if scene.EditingWeeksRemaining <= 0 {
				scene.EditingWeeksRemaining = 0
				if err := scene.Transition(sim.StatusReadyToRelease); err != nil {
					return err
				}
			}
			if err := p.store.SaveScene(ctx, scene); err != nil {
				return err
			}
		case sim.StatusReadyToRelease:
			if err := p.releaseScene(ctx, report, scene); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *WeekProcessor) releaseScene(ctx context.Context, report *WeekReport, scene *sim.Scene) error {
	bloc, _ := p.store.GetBloc(ctx, scene.BlocID)
	cast, err := p.loadCast(ctx, scene)
	if err != nil {
		return err
	}

	if _, err := p.post.Apply(scene, bloc); err != nil {
		p.log.Warn("post-production skipped", "scene_id", scene.ID, "error", err)
	}

	states := make(map[string]*market.GroupState)
	for _, name := range p.resolver.Names() {
		states[name] = p.marketState(ctx, name)
	}

	result := p.revenue.Revenue(scene, cast, states)
	scene.Revenue = result.TotalRevenue
	scene.ViewerGroupInterest = result.ViewerGroupInterest
	scene.RevenueModifierDetails = append(scene.RevenueModifierDetails, result.ModifierDetails...)

	if err := scene.Transition(sim.StatusReleased); err != nil {
		return err
	}
	if err := p.store.SaveScene(ctx, scene); err != nil {
		return err
	}
	if _, err := p.store.IncrCounter(ctx, storage.CounterMoney, result.TotalRevenue); err != nil {
		return err
	}

	for name, saturation := range result.SaturationUpdates {
		state := states[name]
		state.CurrentSaturation = saturation
		for _, key := range result.DiscoveredSentiments[name] {
			state.Discover(key)
		}
		if err := p.store.SaveMarketState(ctx, state); err != nil {
			return err
		}
	}

	if err := p.applyPopularityGains(ctx, cast, result.ViewerGroupInterest); err != nil {
		return err
	}

	report.ReleasedScenes = append(report.ReleasedScenes, scene.ID)
	report.Revenue += result.TotalRevenue
	return nil
}

// applyPopularityGains raises cast popularity in each interested group
// with diminishing returns toward 100.
func (p *WeekProcessor) applyPopularityGains(ctx context.Context, cast map[int64]*sim.Talent, interest map[string]float64) error {
	t := p.tuning.Weekly
	for _, talent := range cast {
		if talent.Popularity == nil {
			talent.Popularity = make(map[string]float64)
		}
		for group, score := range interest {
			if score <= 0 {
				continue
			}
			current := talent.Popularity[group]
			gain := score * t.PopularityGainScalar * (1 - math.Pow(current/100, t.PopularityGainExponent))
			if gain > 0 {
				talent.Popularity[group] = math.Min(100, current+gain)
			}
		}
		if err := p.store.SaveTalent(ctx, talent); err != nil {
			return err
		}
	}
	return nil
}

// weeklyTalentUpdates recovers fatigue past its deadline and decays
// popularity.
func (p *WeekProcessor) weeklyTalentUpdates(ctx context.Context, week, year int) error {
	talents, err := p.store.ListTalents(ctx)
	if err != nil {
		return err
	}
	t := p.tuning.Weekly
	for _, talent := range talents {
		changed := false
		if talent.Fatigue > 0 && deadlinePassed(week, year, talent.FatigueRecoveryWeek, talent.FatigueRecoveryYear) {
			talent.Fatigue = math.Max(0, talent.Fatigue-t.FatigueRecoveryPerWeek)
			changed = true
		}
		for group, pop := range talent.Popularity {
			if pop > 0 {
				talent.Popularity[group] = math.Max(0, pop-t.PopularityDecayPerWeek)
				changed = true
			}
		}
		if changed {
			if err := p.store.SaveTalent(ctx, talent); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *WeekProcessor) weeklyMarketRecovery(ctx context.Context) error {
	for _, name := range p.resolver.Names() {
		state := p.marketState(ctx, name)
		state.RecoverSaturation(p.tuning.Weekly.SaturationRecoveryRate)
		if err := p.store.SaveMarketState(ctx, state); err != nil {
			return err
		}
	}
	return nil
}

// advanceCalendar moves to the next week, wrapping the year and running
// the yearly aging pass at the boundary.
func (p *WeekProcessor) advanceCalendar(ctx context.Context, report *WeekReport) error {
	week := report.Week + 1
	year := report.Year
	if week > p.tuning.Weekly.WeeksPerYear {
		week = 1
		year++
		if err := p.yearlyAging(ctx); err != nil {
			return err
		}
	}
	if err := p.store.SetCounter(ctx, storage.CounterWeek, int64(week)); err != nil {
		return err
	}
	return p.store.SetCounter(ctx, storage.CounterYear, int64(year))
}

// yearlyAging ages every talent one year and fades tag affinities for
// talents past the pivot age.
func (p *WeekProcessor) yearlyAging(ctx context.Context) error {
	talents, err := p.store.ListTalents(ctx)
	if err != nil {
		return err
	}
	t := p.tuning.Weekly
	for _, talent := range talents {
		talent.Age++
		if talent.Age > t.AffinityRecalcAgePivot {
			for tag, affinity := range talent.TagAffinities {
				talent.TagAffinities[tag] = math.Max(0, affinity-t.AffinityDecayPerYearPast)
			}
		}
		if err := p.store.SaveTalent(ctx, talent); err != nil {
			return err
		}
	}
	return nil
}

// Helpers

func (p *WeekProcessor) calendar(ctx context.Context) (int, int, error) {
	week, err := p.store.GetCounter(ctx, storage.CounterWeek)
	if err != nil {
		return 0, 0, err
	}
	if week == 0 {
		week = 1
	}
	year, err := p.store.GetCounter(ctx, storage.CounterYear)
	if err != nil {
		return 0, 0, err
	}
	if year == 0 {
		year = 1
	}
	return int(week), int(year), nil
}

// scheduledScenes lists the scenes shooting this week, ordered by id.
func (p *WeekProcessor) scheduledScenes(ctx context.Context, week, year int) ([]int64, error) {
	blocs, err := p.store.ListBlocs(ctx)
	if err != nil {
		return nil, err
	}
	var ids []int64
	for _, bloc := range blocs {
		if bloc.Week != week || bloc.Year != year {
			continue
		}
		for _, id := range bloc.SceneIDs {
			scene, err := p.store.GetScene(ctx, id)
			if err != nil || scene.Status != sim.StatusScheduled {
				continue
			}
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (p *WeekProcessor) loadShoot(ctx context.Context, sceneID int64) (*sim.Scene, *sim.ShootingBloc, map[int64]*sim.Talent, error) {
	scene, err := p.store.GetScene(ctx, sceneID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading scene %d: %w", sceneID, err)
	}
	bloc, err := p.store.GetBloc(ctx, scene.BlocID)
	if err != nil {
		bloc = nil
	}
	cast, err := p.loadCast(ctx, scene)
	if err != nil {
		return nil, nil, nil, err
	}
	return scene, bloc, cast, nil
}

func (p *WeekProcessor) loadCast(ctx context.Context, scene *sim.Scene) (map[int64]*sim.Talent, error) {
	cast := make(map[int64]*sim.Talent)
	for _, id := range scene.CastTalentIDs() {
		talent, err := p.store.GetTalent(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("loading talent %d: %w", id, err)
		}
		cast[id] = talent
	}
	return cast, nil
}

func (p *WeekProcessor) marketState(ctx context.Context, name string) *market.GroupState {
	state, err := p.store.GetMarketState(ctx, name)
	if err != nil || state == nil {
		return &market.GroupState{Name: name, CurrentSaturation: 1}
	}
	return state
}

// applyOutcome writes one talent's shoot deltas, clamping each skill to
// its cap on the write side.
func (p *WeekProcessor) applyOutcome(talent *sim.Talent, out sim.TalentShootOutcome) {
	t := p.tuning.Outcome
	talent.Performance = math.Min(t.PerformanceCap, talent.Performance+out.PerformanceGain)
	talent.Acting = math.Min(t.ActingCap, talent.Acting+out.ActingGain)
	talent.Stamina = math.Min(t.StaminaCap, talent.Stamina+out.StaminaGain)
	talent.DomSkill = math.Min(t.DomSubCap, talent.DomSkill+out.DomSkillGain)
	talent.SubSkill = math.Min(t.DomSubCap, talent.SubSkill+out.SubSkillGain)
	talent.Experience = math.Min(t.ExperienceCap, talent.Experience+out.ExperienceGain)
	if out.FatigueGain > 0 {
		talent.Fatigue = out.NewFatigue
		talent.FatigueRecoveryWeek = out.RecoveryWeek
		talent.FatigueRecoveryYear = out.RecoveryYear
	}
}

func (p *WeekProcessor) applyChemistry(cast map[int64]*sim.Talent, d sim.ChemistryDiscovery) {
	if ta := cast[d.TalentA]; ta != nil {
		if ta.Chemistry == nil {
			ta.Chemistry = make(map[int64]int)
		}
		ta.Chemistry[d.TalentB] = d.Score
	}
	if tb := cast[d.TalentB]; tb != nil {
		if tb.Chemistry == nil {
			tb.Chemistry = make(map[int64]int)
		}
		tb.Chemistry[d.TalentA] = d.Score
	}
}

func (p *WeekProcessor) saveTalents(ctx context.Context, cast map[int64]*sim.Talent, ids ...int64) error {
	for _, id := range ids {
		if t := cast[id]; t != nil {
			if err := p.store.SaveTalent(ctx, t); err != nil {
				return err
			}
		}
	}
	return nil
}

func deadlinePassed(week, year, deadlineWeek, deadlineYear int) bool {
	if deadlineWeek == 0 && deadlineYear == 0 {
		return true
	}
	if year != deadlineYear {
		return year > deadlineYear
	}
	return week >= deadlineWeek
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func mergeMods(dst, src *sim.ShootModifiers) {
	if src == nil {
		return
	}
	dst.OverallQuality = dst.Overall() * src.Overall()
	for id, mult := range src.PerformerMods {
		dst.AddPerformerMod(id, mult)
	}
}
