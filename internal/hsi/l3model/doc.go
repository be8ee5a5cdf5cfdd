// Package l3model owns Layer 3 (Model) of the runtime.
//
// Responsibilities: the loaded project description (kind, input geometry,
// data type, layout, mask policy, correction policy), the decision class
// catalogue, the trained classifier weights and the optional regressor.
// Key types: Model, Decision, Classifier, Regression.
//
// A Model is immutable once loaded except for the two post-load
// adjustments the runtime permits: SetWidth and SetLayout.
//
// Dependency rule: L3 may depend on L0-L2, never on L4+.
package l3model
