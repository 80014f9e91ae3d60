// Package prompt edits a collection from the terminal. Session drives the
// add/edit/remove loop through a Driver; NewSurveyDriver is the interactive
// implementation and tests substitute a scripted one.
package prompt
