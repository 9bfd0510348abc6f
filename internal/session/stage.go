package session

import (
	"errors"
	"fmt"
)

// Stage is how far a purchase has progressed in the current test.
type Stage int

const (
	NotStarted Stage = iota
	SiteLoaded
	LoggedIn
	ProductSelected
	InCart
	CheckoutFormFilled
	ContinueClicked
	Finished
)

var stageNames = [...]string{
	NotStarted:         "NotStarted",
	SiteLoaded:         "SiteLoaded",
	LoggedIn:           "LoggedIn",
	ProductSelected:    "ProductSelected",
	InCart:             "InCart",
	CheckoutFormFilled: "CheckoutFormFilled",
	ContinueClicked:    "ContinueClicked",
	Finished:           "Finished",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

var (
	// ErrStageOrder is returned when a step runs before the flow reached
	// the stage it depends on.
	ErrStageOrder = errors.New("workflow step out of order")
	// ErrStageRegression is returned when the flow would move backwards.
	ErrStageRegression = errors.New("workflow stage cannot move backwards")
)
