package optimizer

import "errors"

var errNotInResult = errors.New("optimizer: run is not in the Result phase")
