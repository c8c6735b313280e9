// Package services wires the civic data stores, the passage index, the
// strategy set, and the conversation history into one query-answering
// registry.
//
// The registry owns component lifecycle. Data sources that fail to load
// at startup do not stop the daemon: the affected strategy is registered
// but marked unavailable, the daemon serves everything else, and when
// data watching is enabled a later successful reload brings the strategy
// back. The daemon's own stores are stricter; a history database that
// cannot open fails startup.
package services
