// Package gliterr defines the closed error taxonomy shared by every gitlite
// operation. The front end turns these into the user-facing strings; internal
// code matches on the kind.
package gliterr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindObjectMissing      Kind = "OBJECT_MISSING"
	KindCorruptObject      Kind = "CORRUPT_OBJECT"
	KindNoSuchCommit       Kind = "NO_SUCH_COMMIT"
	KindAmbiguousID        Kind = "AMBIGUOUS_ID"
	KindNoSuchBranch       Kind = "NO_SUCH_BRANCH"
	KindBranchExists       Kind = "BRANCH_EXISTS"
	KindCurrentBranch      Kind = "CURRENT_BRANCH"
	KindSelfMerge          Kind = "SELF_MERGE"
	KindEmptyCommitMessage Kind = "EMPTY_COMMIT_MESSAGE"
	KindNothingStaged      Kind = "NOTHING_STAGED"
	KindNothingToRemove    Kind = "NOTHING_TO_REMOVE"
	KindFileNotFound       Kind = "FILE_NOT_FOUND"
	KindFileNotInCommit    Kind = "FILE_NOT_IN_COMMIT"
	KindUntrackedInTheWay  Kind = "UNTRACKED_IN_THE_WAY"
	KindUncommittedChanges Kind = "UNCOMMITTED_CHANGES"
	KindNoSuchMessage      Kind = "NO_SUCH_MESSAGE"
	KindNoSuchRemote       Kind = "NO_SUCH_REMOTE"
	KindRemoteExists       Kind = "REMOTE_EXISTS"
	KindNoSuchRemoteBranch Kind = "NO_SUCH_REMOTE_BRANCH"
	KindNonFastForward     Kind = "NON_FAST_FORWARD"
	KindAlreadyInitialised Kind = "ALREADY_INITIALISED"
	KindNotInitialised     Kind = "NOT_INITIALISED"
	KindIO                 Kind = "IO"
)

// userMessages holds the exact strings the front end prints for each kind.
var userMessages = map[Kind]string{
	KindObjectMissing:      "No commit with that id exists.",
	KindCorruptObject:      "No commit with that id exists.",
	KindNoSuchCommit:       "No commit with that id exists.",
	KindAmbiguousID:        "No commit with that id exists.",
	KindNoSuchBranch:       "No such branch exists.",
	KindBranchExists:       "A branch with that name already exists.",
	KindCurrentBranch:      "Cannot remove the current branch.",
	KindSelfMerge:          "Cannot merge a branch with itself.",
	KindEmptyCommitMessage: "Please enter a commit message.",
	KindNothingStaged:      "No changes added to the commit.",
	KindNothingToRemove:    "No reason to remove the file.",
	KindFileNotFound:       "File does not exist.",
	KindFileNotInCommit:    "File does not exist in that commit.",
	KindUntrackedInTheWay:  "There is an untracked file in the way; delete it, or add and commit it first.",
	KindUncommittedChanges: "You have uncommitted changes.",
	KindNoSuchMessage:      "Found no commit with that message.",
	KindNoSuchRemote:       "A remote with that name does not exist.",
	KindRemoteExists:       "A remote with that name already exists.",
	KindNoSuchRemoteBranch: "That remote does not have that branch.",
	KindNonFastForward:     "Please pull down remote changes before pushing.",
	KindAlreadyInitialised: "A Gitlite version-control system already exists in the current directory.",
	KindNotInitialised:     "Not in an initialized Gitlite directory.",
}

// Error carries a kind, an optional user-facing message override, and an
// optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = userMessages[e.Kind]
	}
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an error of the given kind carrying its canonical message.
func New(kind Kind) *Error {
	return &Error{Kind: kind}
}

// Newf returns an error of the given kind with a custom message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying cause.
func Wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// IO wraps a filesystem failure with the context in which it occurred.
func IO(context string, err error) *Error {
	return &Error{Kind: KindIO, Message: context, Err: err}
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Kind == kind
}

// KindOf returns the kind carried by err, or the empty kind.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ""
}

// UserMessage returns the string the front end should print for err. Errors
// outside the taxonomy fall back to their own message.
func UserMessage(err error) string {
	var ge *Error
	if errors.As(err, &ge) {
		if ge.Message != "" {
			return ge.Message
		}
		if msg, ok := userMessages[ge.Kind]; ok {
			return msg
		}
	}
	return err.Error()
}
