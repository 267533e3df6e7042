package deployment

import "errors"

// ErrSubmissionRejected indicates the network answered the submission of the deployment transaction with an error, or
// the transaction failed during execution (e.g. an insufficient gas ceiling). Resubmitting unchanged is expected to
// fail the same way.
var ErrSubmissionRejected = errors.New("submission rejected")

// ErrSubmissionUnknown indicates submitting the deployment transaction failed without an answer from the network, so
// the transaction may or may not have been accepted. It stays journaled as pending until resolved.
var ErrSubmissionUnknown = errors.New("submission outcome unknown")

// ErrConfirmationTimeout indicates the network did not confirm the deployment transaction in time. The transaction
// may still be mined later.
var ErrConfirmationTimeout = errors.New("confirmation timeout")

// ErrUnresolvedDeployment indicates an earlier deployment of the same artifact to the same chain has an unknown
// outcome, so submitting again could deploy twice.
var ErrUnresolvedDeployment = errors.New("an earlier deployment is unresolved")
