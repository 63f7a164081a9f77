package deck

// Error is a domain failure with a stable machine code and a message that is
// safe to show to the user as-is.
type Error struct {
	code string
	text string
}

func (e *Error) Error() string { return e.text }

// Code returns the stable identifier used for log error codes.
func (e *Error) Code() string { return e.code }

// UserMessage returns the user-facing rendering of the failure.
func (e *Error) UserMessage() string { return e.text }

var (
	// ErrInvalidAttachment is returned when a card or bundle operation was
	// started but the message carried no usable attachment.
	ErrInvalidAttachment = &Error{code: "INVALID_ATTACHMENT", text: "That message has no usable attachment for this step."}
	// ErrInvalidNumber is returned when user input does not parse as an integer.
	ErrInvalidNumber = &Error{code: "INVALID_NUMBER", text: "That is not a number. Send the item number from the list."}
	// ErrOutOfRange is returned for positions outside the current list.
	ErrOutOfRange = &Error{code: "OUT_OF_RANGE", text: "There is no item with that number."}
	// ErrDeckEmpty is returned when a draw is attempted on an empty deck.
	ErrDeckEmpty = &Error{code: "DECK_EMPTY", text: "The deck is empty."}
	// ErrImportInProgress rejects an import while a previous one is mid-flight.
	ErrImportInProgress = &Error{code: "IMPORT_IN_PROGRESS", text: "Another import is still running. Try again in a moment."}
	// ErrBundleInvalid is returned when an uploaded bundle cannot be used.
	// The dataset is rolled back to its pre-import state.
	ErrBundleInvalid = &Error{code: "BUNDLE_INVALID", text: "The uploaded bundle is not a valid export. Nothing was changed."}
	// ErrStorageCorrupt indicates the on-disk record cannot be parsed.
	// It is fatal at startup: the process must not mutate a corrupt store.
	ErrStorageCorrupt = &Error{code: "STORAGE_CORRUPT", text: "Stored data is unreadable."}
)
