// Package pipeline hosts the plugin registry and the publish runner.
//
// Plugins are plain values implementing one or more capability interfaces
// (Creator, Loader, ContextCollector, InstanceCollector, Validator,
// Extractor, Integrator). The runner orders publish plugins by Order and
// runs each one over the current instances before moving to the next, so a
// collector may add or remove instances that later plugins then see. A
// failing plugin marks only the instance it ran on; context collectors
// failing abort the run because nothing can be published without them.
package pipeline
