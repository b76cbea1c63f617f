// Package hydro calibrates lumped rainfall-runoff models against observed
// streamflow. The root package holds the shared data containers and error
// taxonomy; the simulation stack lives in pet, snow and climate, goodness-of-fit
// scoring in metrics, model composition in model, and the SCE-UA engine in calib.
package hydro
