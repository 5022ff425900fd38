package hbond

import "fmt"

//Error messages reused across the package.
const (
	ErrNilTraj        = "goHBond: nil trajectory given"
	ErrNotSeekable    = "goHBond: the trajectory does not support seeking, which this analysis requires"
	ErrTrajUnIni      = "goHBond: trajectory not initialized to be read"
	ErrNoResults      = "goHBond: no results available yet, call Run first"
	ErrAllWinsEmpty   = "goHBond: no hydrogen bonds found at the start of any window"
	ErrUnknownMode    = "goHBond: unrecognized hydrogen bond lifetime definition"
	ErrNilCoordinates = "goHBond: got nil coordinates"
)

// CError is the concrete error type for the errors of the library itself.
// It implements the Error interface of this package.
type CError struct {
	msg  string
	deco []string
}

func (err CError) Error() string { return err.msg }

//Decorate will add the dec string to the decoration slice of strings of the error,
//and return the resulting slice.
func (err CError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

//errDecorate asserts that the error implements the Error interface of
//this package, and decorates it with the caller's name before returning
//it. Errors of foreign types get wrapped into a CError first.
func errDecorate(err error, caller string) error {
	err2, ok := err.(Error)
	if !ok {
		return CError{err.Error(), []string{caller}}
	}
	err2.Decorate(caller)
	return err2
}

//cerrf builds a CError the fmt way.
func cerrf(caller, format string, a ...interface{}) CError {
	return CError{fmt.Sprintf("goHBond: "+format, a...), []string{caller}}
}
