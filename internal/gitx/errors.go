package gitx

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies git driver failures.
type ErrorKind int

const (
	// KindExec means the git process could not be started.
	KindExec ErrorKind = iota
	// KindExit means git ran and exited non-zero.
	KindExit
	// KindTimeout means git exceeded the driver timeout.
	KindTimeout
	// KindNotFound means the git executable is not installed or not on PATH.
	KindNotFound
)

// GitError is returned by every driver operation that shells out to git.
type GitError struct {
	Kind   ErrorKind
	Args   []string
	Stderr string
	Hint   string
	Err    error
}

func (e *GitError) Error() string {
	var b strings.Builder
	switch e.Kind {
	case KindNotFound:
		b.WriteString("git executable not found")
	case KindTimeout:
		fmt.Fprintf(&b, "git %s timed out", strings.Join(e.Args, " "))
	case KindExit:
		fmt.Fprintf(&b, "git %s failed", strings.Join(e.Args, " "))
		if e.Stderr != "" {
			fmt.Fprintf(&b, ": %s", e.Stderr)
		}
	default:
		fmt.Fprintf(&b, "failed to run git %s", strings.Join(e.Args, " "))
		if e.Err != nil {
			fmt.Fprintf(&b, ": %v", e.Err)
		}
	}
	if e.Hint != "" {
		fmt.Fprintf(&b, "\nhint: %s", e.Hint)
	}
	return b.String()
}

func (e *GitError) Unwrap() error { return e.Err }

// AsGitError unwraps err into a *GitError when possible.
func AsGitError(err error) (*GitError, bool) {
	var ge *GitError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

// authHintHosts are remotes that commonly require credentials.
var authHintHosts = []string{"github.com", "gitlab.com", "bitbucket.org", "dev.azure.com"}

// authStderrMarkers are stderr fragments that look like authentication failures.
var authStderrMarkers = []string{
	"authentication",
	"permission denied",
	"403",
	"could not read",
	"ssh key",
	"publickey",
}

// authHint returns a credentials hint when the failure looks like an
// authentication problem against a well-known host, else "".
func authHint(url, stderr string) string {
	lowerURL := strings.ToLower(url)
	hosted := false
	for _, host := range authHintHosts {
		if strings.Contains(lowerURL, host) {
			hosted = true
			break
		}
	}
	if !hosted {
		return ""
	}
	lowerErr := strings.ToLower(stderr)
	for _, marker := range authStderrMarkers {
		if strings.Contains(lowerErr, marker) {
			return fmt.Sprintf("cloning %s failed in a way that looks like an authentication problem; "+
				"check your SSH keys or access token for the remote host", url)
		}
	}
	return ""
}
