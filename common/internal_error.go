package common

import (
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/squareup/blockexec/errors"
)

// LogInternalError logs err against a random reference and returns an ExecError carrying only the reference, so
// engine internals are not leaked to whoever reads the error.
func LogInternalError(err error) errors.ExecError {
	id, err2 := uuid.NewRandom()
	var errRef string
	if err2 != nil {
		log.Errorf("failed to generate uuid %v", err2)
		errRef = ""
	} else {
		errRef = id.String()
	}
	log.Errorf("internal error occurred with reference %s\n%+v", errRef, err)
	return errors.NewInternalError(errRef)
}
