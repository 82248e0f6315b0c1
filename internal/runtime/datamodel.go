package runtime

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"scormhost/internal/domain"
)

// State is the lifecycle position of a runtime session.
type State int

const (
	// StateUninitialized is the state before content calls Initialize.
	StateUninitialized State = iota
	// StateInitialized is the active exchange state.
	StateInitialized
	// StateTerminated is terminal; no operation succeeds afterwards.
	StateTerminated
)

// Collection names addressable through indexed data model elements.
const (
	collectionInteractions = "interactions"
	collectionObjectives   = "objectives"
)

// readOnlyElements always reject SetValue with a read-only error, in every
// state. Entry is set during hydration, never by content.
var readOnlyElements = map[string]struct{}{
	"cmi.learner_id":                  {},
	"cmi.learner_name":                {},
	"cmi.learner_preference.language": {},
	"cmi.mode":                        {},
	"cmi.entry":                       {},
	"cmi.interactions._count":         {},
	"cmi.objectives._count":           {},
}

// valueDomains constrains the enumerated elements.
var valueDomains = map[string][]string{
	"cmi.completion_status": {"completed", "incomplete", "not attempted", "unknown"},
	"cmi.success_status":    {"passed", "failed", "unknown"},
	"cmi.exit":              {"time-out", "suspend", "logout", "normal", ""},
	"cmi.mode":              {"browse", "normal", "review"},
}

// writableElements are the scalar elements content may set. Anything not
// listed here, not read-only, and not a collection element is undefined.
var writableElements = map[string]struct{}{
	"cmi.completion_status": {},
	"cmi.success_status":    {},
	"cmi.location":          {},
	"cmi.suspend_data":      {},
	"cmi.exit":              {},
	"cmi.session_time":      {},
	"cmi.total_time":        {},
	"cmi.score.raw":         {},
	"cmi.score.min":         {},
	"cmi.score.max":         {},
	"cmi.score.scaled":      {},
	"cmi.progress_measure":  {},
}

// defaultElements are the construction-time values of a fresh session.
func defaultElements() map[string]string {
	return map[string]string{
		"cmi.completion_status": "incomplete",
		"cmi.success_status":    "unknown",
		"cmi.score.min":         "0",
		"cmi.score.max":         "100",
		"cmi.total_time":        "PT0H0M0S",
		"cmi.session_time":      "PT0H0M0S",
		"cmi.location":          "",
		"cmi.suspend_data":      "",
		"cmi.entry":             "ab-initio",
		"cmi.mode":              "normal",
		"cmi.exit":              "",
	}
}

// DataModel is one learner attempt's runtime state machine. It is scoped to
// a single playback session; calls are serialized internally so the adapter
// layer can invoke it from request handlers without extra locking.
type DataModel struct {
	mu sync.Mutex

	sessionID string
	packageID string

	state        State
	elements     map[string]string
	interactions []map[string]string
	objectives   []map[string]string
	dirty        map[string]struct{}

	lastError  string
	diagnostic string

	pipeline *CommitPipeline
	logger   domain.Logger
	ctx      context.Context
}

// NewDataModel constructs a fresh session with standard defaults.
func NewDataModel(sessionID, packageID string) *DataModel {
	return &DataModel{
		sessionID: sessionID,
		packageID: packageID,
		elements:  defaultElements(),
		dirty:     make(map[string]struct{}),
		lastError: ErrNone,
		logger:    domain.NopLogger{},
		ctx:       context.Background(),
	}
}

// NewDataModelFromSnapshot hydrates defaults with previously persisted
// values. The model never infers resume semantics itself; the hydrating
// caller is expected to call MarkResumed before playback begins.
func NewDataModelFromSnapshot(snap domain.SessionSnapshot) *DataModel {
	dm := NewDataModel(snap.SessionID, snap.PackageID)
	for k, v := range snap.DataModel {
		if strings.HasSuffix(k, "._count") {
			continue // counts are live, never stored state
		}
		dm.elements[k] = v
	}
	dm.interactions = domain.SessionSnapshot{Interactions: snap.Interactions}.Clone().Interactions
	dm.objectives = domain.SessionSnapshot{Objectives: snap.Objectives}.Clone().Objectives
	return dm
}

// MarkResumed flags the session as a continuation of a prior attempt.
func (dm *DataModel) MarkResumed() {
	dm.mu.Lock()
	dm.elements["cmi.entry"] = "resume"
	dm.mu.Unlock()
}

func (dm *DataModel) bind(pipeline *CommitPipeline, logger domain.Logger, ctx context.Context) {
	dm.mu.Lock()
	dm.pipeline = pipeline
	if logger != nil {
		dm.logger = logger
	}
	if ctx != nil {
		dm.ctx = ctx
	}
	dm.mu.Unlock()
}

// SessionID returns the owning session identifier.
func (dm *DataModel) SessionID() string { return dm.sessionID }

// PackageID returns the catalogued package this session plays.
func (dm *DataModel) PackageID() string { return dm.packageID }

// State returns the current lifecycle state.
func (dm *DataModel) State() State {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return dm.state
}

func (dm *DataModel) fail(code, diagnostic string) string {
	dm.lastError = code
	dm.diagnostic = diagnostic
	return "false"
}

func (dm *DataModel) ok() string {
	dm.lastError = ErrNone
	dm.diagnostic = ""
	return "true"
}

// Initialize transitions the session into the active exchange state.
func (dm *DataModel) Initialize(string) string {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	switch dm.state {
	case StateInitialized:
		return dm.fail(ErrAlreadyInitialized, "Initialize called twice")
	case StateTerminated:
		return dm.fail(ErrContentInstanceTerm, "Initialize after Terminate")
	}
	dm.state = StateInitialized
	dm.logger.Debug("session initialized", "session_id", dm.sessionID)
	return dm.ok()
}

// Terminate performs an implicit commit and closes the session for good.
func (dm *DataModel) Terminate(string) string {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	switch dm.state {
	case StateUninitialized:
		return dm.fail(ErrTerminationBeforeInit, "Terminate before Initialize")
	case StateTerminated:
		return dm.fail(ErrTerminationAfterTerm, "Terminate called twice")
	}
	flushErr := dm.flushLocked()
	dm.state = StateTerminated
	dm.logger.Debug("session terminated", "session_id", dm.sessionID)
	if flushErr != nil {
		dm.logger.Error("implicit commit failed during terminate", "session_id", dm.sessionID, "error", flushErr)
		return dm.fail(ErrGeneralTermination, flushErr.Error())
	}
	return dm.ok()
}

// GetValue reads a data model element: scalars, live _count pseudo-elements,
// and indexed collection properties. Unset collection properties read as
// empty without raising an error; entirely unknown element names do not.
func (dm *DataModel) GetValue(element string) string {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	switch dm.state {
	case StateUninitialized:
		dm.fail(ErrRetrieveBeforeInit, "GetValue before Initialize")
		return ""
	case StateTerminated:
		dm.fail(ErrRetrieveAfterTerm, "GetValue after Terminate")
		return ""
	}

	if coll, ok := countElement(element); ok {
		dm.ok()
		return strconv.Itoa(len(dm.collection(coll)))
	}
	if coll, idx, prop, ok := collectionElement(element); ok {
		records := dm.collection(coll)
		dm.ok()
		if idx >= len(records) {
			return ""
		}
		return records[idx][prop]
	}
	if v, ok := dm.elements[element]; ok {
		dm.ok()
		return v
	}
	if _, ok := writableElements[element]; ok {
		dm.ok()
		return ""
	}
	if _, ok := readOnlyElements[element]; ok {
		// Known to the model, read-only, and unset (e.g. learner identity
		// never provided): reads as empty rather than undefined.
		dm.ok()
		return ""
	}
	dm.fail(ErrUndefinedElement, "unknown element "+element)
	return ""
}

// SetValue writes a data model element, growing interaction/objective lists
// as needed and validating enumerated value domains. Read-only elements are
// rejected in every state.
func (dm *DataModel) SetValue(element, value string) string {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	if _, ro := readOnlyElements[element]; ro {
		return dm.fail(ErrElementReadOnly, element+" is read only")
	}
	switch dm.state {
	case StateUninitialized:
		return dm.fail(ErrStoreBeforeInit, "SetValue before Initialize")
	case StateTerminated:
		return dm.fail(ErrStoreAfterTerm, "SetValue after Terminate")
	}

	if coll, idx, prop, ok := collectionElement(element); ok {
		dm.setCollectionValue(coll, idx, prop, value)
		dm.dirty[element] = struct{}{}
		return dm.ok()
	}
	if _, ok := writableElements[element]; !ok {
		return dm.fail(ErrUndefinedElement, "unknown element "+element)
	}
	if allowed, ok := valueDomains[element]; ok && !contains(allowed, value) {
		return dm.fail(ErrElementValueOutOfRange, value+" is not a legal value for "+element)
	}
	dm.elements[element] = value
	dm.dirty[element] = struct{}{}
	return dm.ok()
}

// Commit flushes dirty state to session persistence as one batch. With a
// clean dirty set it succeeds without touching the store.
func (dm *DataModel) Commit(string) string {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	switch dm.state {
	case StateUninitialized:
		return dm.fail(ErrCommitBeforeInit, "Commit before Initialize")
	case StateTerminated:
		return dm.fail(ErrCommitAfterTerm, "Commit after Terminate")
	}
	if err := dm.flushLocked(); err != nil {
		dm.logger.Error("commit failed", "session_id", dm.sessionID, "error", err)
		return dm.fail(ErrGeneralCommitFailure, err.Error())
	}
	return dm.ok()
}

// GetLastError returns the code recorded by the most recent operation.
func (dm *DataModel) GetLastError() string {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return dm.lastError
}

// GetErrorString maps a code to its fixed human-readable text.
func (dm *DataModel) GetErrorString(code string) string {
	return ErrorString(code)
}

// GetDiagnostic returns free-text context for the last failure; with no
// recorded diagnostic it echoes the argument.
func (dm *DataModel) GetDiagnostic(param string) string {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	if dm.diagnostic != "" {
		return dm.diagnostic
	}
	return param
}

// SessionData exports the full session state for persistence or hydration.
// Collection counts are materialized into the data model map.
func (dm *DataModel) SessionData() domain.SessionSnapshot {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return dm.snapshotLocked()
}

func (dm *DataModel) snapshotLocked() domain.SessionSnapshot {
	data := make(map[string]string, len(dm.elements)+2)
	for k, v := range dm.elements {
		data[k] = v
	}
	data["cmi.interactions._count"] = strconv.Itoa(len(dm.interactions))
	data["cmi.objectives._count"] = strconv.Itoa(len(dm.objectives))
	return domain.SessionSnapshot{
		SessionID:    dm.sessionID,
		PackageID:    dm.packageID,
		DataModel:    data,
		Interactions: domain.SessionSnapshot{Interactions: dm.interactions}.Clone().Interactions,
		Objectives:   domain.SessionSnapshot{Objectives: dm.objectives}.Clone().Objectives,
		UpdatedAt:    time.Now().UTC(),
	}
}

func (dm *DataModel) flushLocked() error {
	if len(dm.dirty) == 0 {
		return nil
	}
	if dm.pipeline == nil {
		dm.dirty = make(map[string]struct{})
		return nil
	}
	if err := dm.pipeline.Flush(dm.ctx, dm.snapshotLocked()); err != nil {
		return err
	}
	dm.dirty = make(map[string]struct{})
	return nil
}

// DirtyCount reports how many elements await commit.
func (dm *DataModel) DirtyCount() int {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return len(dm.dirty)
}

func (dm *DataModel) collection(name string) []map[string]string {
	if name == collectionInteractions {
		return dm.interactions
	}
	return dm.objectives
}

func (dm *DataModel) setCollectionValue(coll string, idx int, prop, value string) {
	records := dm.collection(coll)
	for len(records) <= idx {
		records = append(records, map[string]string{})
	}
	records[idx][prop] = value
	if coll == collectionInteractions {
		dm.interactions = records
	} else {
		dm.objectives = records
	}
}

// countElement matches the cmi.<collection>._count pseudo-elements.
func countElement(element string) (string, bool) {
	switch element {
	case "cmi.interactions._count":
		return collectionInteractions, true
	case "cmi.objectives._count":
		return collectionObjectives, true
	}
	return "", false
}

// collectionElement matches cmi.<collection>.<index>.<property> and returns
// its parts. Property names are free-form; the collection and index are not.
func collectionElement(element string) (coll string, idx int, prop string, ok bool) {
	parts := strings.SplitN(element, ".", 4)
	if len(parts) != 4 || parts[0] != "cmi" {
		return "", 0, "", false
	}
	if parts[1] != collectionInteractions && parts[1] != collectionObjectives {
		return "", 0, "", false
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil || n < 0 {
		return "", 0, "", false
	}
	return parts[1], n, parts[3], true
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
