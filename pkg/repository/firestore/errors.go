package firestore

import "github.com/m-mizutani/goerr/v2"

var (
	ErrNotFound = goerr.New("not found")
)
