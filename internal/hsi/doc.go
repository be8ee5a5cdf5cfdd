// Package hsi is the root of the hyperspectral classification runtime.
//
// The runtime is layered the same way the sensor stack it grew from is:
//
//	l0device     compute backend selection
//	l1samples    data types, memory layouts, typed frame/cube views
//	l2correction dark/white reference correction
//	l3model      loaded project: geometry, decisions, classifier, regressor
//	l4classify   per-pixel decisions and regression planes
//	l5segment    connected-component segmentation and cross-frame tracking
//	l6objects    bounded table of finalised objects
//
// Dependency rule: a layer may import lower layers, never higher ones.
// The pipeline package glues the layers into one runtime handle.
//
// This package holds the error codes shared by every layer.
package hsi
