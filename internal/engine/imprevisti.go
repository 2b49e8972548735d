// Imprevisto handling — rolling new unforeseen events onto objectives and
// applying the consequences of registered player choices.
package engine

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/talgya/mystara/internal/campaign"
	"github.com/talgya/mystara/internal/llm"
	"github.com/talgya/mystara/internal/persistence"
)

// imprevistoSeeds are the setback themes used when an event is rolled
// automatically rather than described by the DM.
var imprevistoSeeds = []string{
	"A week of torrential storms halts all outdoor work",
	"Bandits raid the supply caravans",
	"Key laborers desert after a pay dispute",
	"A local lord demands tribute before work may continue",
	"Essential materials turn out to be spoiled and must be replaced",
	"An illness sweeps through the work camp",
}

// resolvePending applies every unhandled event that has a registered player
// choice, then marks it handled. Events without a choice are left untouched;
// they never resolve on their own. Once handled, re-running is a no-op, so
// the whole pass is idempotent.
func (e *Engine) resolvePending(log *advanceLog) {
	events, err := e.db.ListResolvableEvents()
	if err != nil {
		log.warnf("could not load resolvable events: %v", err)
		return
	}

	for _, ev := range events {
		e.resolveEvent(ev, log)
	}
}

func (e *Engine) resolveEvent(ev campaign.ImprevistoEvent, log *advanceLog) {
	choice := ev.PlayerChoice

	obj, err := e.db.GetObjective(ev.ObjectiveID)
	if errors.Is(err, persistence.ErrObjectiveNotFound) {
		log.warnf("event %s refers to missing objective %d, left pending", ev.ID, ev.ObjectiveID)
		return
	}
	if err != nil {
		log.warnf("event %s: %v", ev.ID, err)
		return
	}

	switch {
	case obj.Status == campaign.StatusCompleted || obj.Status == campaign.StatusFailed:
		// Terminal objectives take no further consequences.
		log.infof("event on %q resolved with no effect (objective already %s)", obj.Name, obj.Status)
	case choice.IsFailure:
		obj.Status = campaign.StatusFailed
		if err := e.db.UpdateObjective(obj); err != nil {
			log.warnf("event %s: failing objective %q: %v", ev.ID, obj.Name, err)
			return
		}
		log.infof("objective %q abandoned: %s", obj.Name, choice.OptionText)
	default:
		obj.EstimatedMonths += choice.ExtraMonths
		obj.TotalCost = obj.TotalCost.Add(choice.ExtraCost)
		if err := e.db.UpdateObjective(obj); err != nil {
			log.warnf("event %s: updating objective %q: %v", ev.ID, obj.Name, err)
			return
		}
		log.infof("objective %q: %s (+%d months, +%s gp)",
			obj.Name, choice.OptionText, choice.ExtraMonths, money(choice.ExtraCost))
	}

	if err := e.db.MarkEventHandled(ev); err != nil {
		log.warnf("event %s: marking handled: %v", ev.ID, err)
	}
}

// RollImprevisto creates an unforeseen event on an objective, with response
// options generated by the LLM (or the fixed fallback set). This is the DM
// entry point; the automatic monthly roll goes through the same path.
func (e *Engine) RollImprevisto(objectiveID int64, description string) (campaign.ImprevistoEvent, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rollImprevisto(objectiveID, description)
}

func (e *Engine) rollImprevisto(objectiveID int64, description string) (campaign.ImprevistoEvent, error) {
	obj, err := e.db.GetObjective(objectiveID)
	if err != nil {
		return campaign.ImprevistoEvent{}, err
	}
	if obj.Status != campaign.StatusInProgress {
		return campaign.ImprevistoEvent{}, fmt.Errorf("objective %q is %s, not IN_PROGRESS", obj.Name, obj.Status)
	}

	ev := campaign.ImprevistoEvent{
		ID:              uuid.NewString(),
		ObjectiveID:     objectiveID,
		Description:     description,
		ResponseOptions: llm.GenerateOptions(e.llm, description),
		EventDay:        e.clock.AbsoluteDay,
	}
	if err := e.db.CreateImprevisto(ev); err != nil {
		return campaign.ImprevistoEvent{}, err
	}
	return ev, nil
}

// maybeRollImprevisto runs the automatic fortune-gated roll at the end of a
// monthly advance: one chance, against one randomly chosen IN_PROGRESS
// objective.
func (e *Engine) maybeRollImprevisto(log *advanceLog) {
	if e.fortune == nil {
		return
	}

	chance := e.fortune.EventChance(e.clock.AbsoluteDay)
	if e.rand() >= chance {
		return
	}

	objectives, err := e.db.ListObjectivesInProgress()
	if err != nil {
		log.warnf("could not load objectives for imprevisto roll: %v", err)
		return
	}
	if len(objectives) == 0 {
		return
	}

	target := objectives[int(e.rand()*float64(len(objectives)))%len(objectives)]
	seed := imprevistoSeeds[int(e.rand()*float64(len(imprevistoSeeds)))%len(imprevistoSeeds)]
	description := fmt.Sprintf("%s, delaying %q", seed, target.Name)

	ev, err := e.rollImprevisto(target.ID, description)
	if err != nil {
		log.warnf("imprevisto roll failed: %v", err)
		return
	}
	log.infof("imprevisto strikes %q: %s (%d options, awaiting player choice)",
		target.Name, ev.Description, len(ev.ResponseOptions))
}

// ListPendingEvents exposes unhandled events for the UI.
func (e *Engine) ListPendingEvents() ([]persistence.PendingEvent, error) {
	return e.db.ListPendingEvents()
}

// RegisterChoice records the player's selected option on a pending event.
// The consequence is applied by the next advance call's resolution pass.
func (e *Engine) RegisterChoice(eventID string, optionIndex int) error {
	return e.db.RegisterChoice(eventID, optionIndex)
}
