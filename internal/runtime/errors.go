// Package runtime implements the SCORM runtime communication contract: the
// per-session data model state machine, the session registry, and the commit
// pipeline that flushes session state to persistence.
//
// Protocol failures never cross the call boundary as Go errors. Every
// operation returns the sentinel "false" or empty string and records a
// numeric code that content polls via GetLastError/GetErrorString.
package runtime

// Protocol error codes. The set is closed; content relies on these exact
// values regardless of host platform.
const (
	ErrNone                   = "0"
	ErrGeneralException       = "101"
	ErrAlreadyInitialized     = "103"
	ErrContentInstanceTerm    = "104"
	ErrGeneralTermination     = "111"
	ErrTerminationBeforeInit  = "112"
	ErrTerminationAfterTerm   = "113"
	ErrRetrieveBeforeInit     = "122"
	ErrRetrieveAfterTerm      = "123"
	ErrStoreBeforeInit        = "132"
	ErrStoreAfterTerm         = "133"
	ErrCommitBeforeInit       = "142"
	ErrCommitAfterTerm        = "143"
	ErrGeneralArgument        = "201"
	ErrGeneralGetFailure      = "301"
	ErrGeneralSetFailure      = "351"
	ErrGeneralCommitFailure   = "391"
	ErrUndefinedElement       = "401"
	ErrElementReadOnly        = "404"
	ErrElementValueOutOfRange = "405"
)

var errorStrings = map[string]string{
	ErrNone:                   "No error",
	ErrGeneralException:       "General exception",
	ErrAlreadyInitialized:     "Already initialized",
	ErrContentInstanceTerm:    "Content instance terminated",
	ErrGeneralTermination:     "General termination failure",
	ErrTerminationBeforeInit:  "Termination before initialization",
	ErrTerminationAfterTerm:   "Termination after termination",
	ErrRetrieveBeforeInit:     "Retrieve data before initialization",
	ErrRetrieveAfterTerm:      "Retrieve data after termination",
	ErrStoreBeforeInit:        "Store data before initialization",
	ErrStoreAfterTerm:         "Store data after termination",
	ErrCommitBeforeInit:       "Commit before initialization",
	ErrCommitAfterTerm:        "Commit after termination",
	ErrGeneralArgument:        "General argument error",
	ErrGeneralGetFailure:      "General get failure",
	ErrGeneralSetFailure:      "General set failure",
	ErrGeneralCommitFailure:   "General commit failure",
	ErrUndefinedElement:       "Undefined data model element",
	ErrElementReadOnly:        "Data model element is read only",
	ErrElementValueOutOfRange: "Data model element value out of range",
}

// ErrorString maps a protocol code to its human-readable text. Unknown codes
// map to a generic string rather than failing.
func ErrorString(code string) string {
	if s, ok := errorStrings[code]; ok {
		return s
	}
	return "Unknown error"
}
