// Package export renders runtime output for people: the decision mask as
// a coloured PNG, regression planes as plot heatmaps, and an HTML report
// of the object table.
package export
