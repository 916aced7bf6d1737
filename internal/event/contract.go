package event

// OldValueSupplier is the per-call callback the adapter hands to the
// engine alongside a read or write label. The engine invokes it
// synchronously, during its own resolution of that one label, to tell
// the adapter which address's previously-known value is being consulted;
// the adapter routes the call to its initial-value bridge. The supplier
// must not be retained past the submission call.
type OldValueSupplier func(addr uint64)

// InitValGetter is the capability the adapter registers with the engine
// once at setup. The engine calls it whenever it needs the initial value
// of an address no write has touched yet. Lookups never fail: an address
// with no recorded initial value yields a diagnostic placeholder.
type InitValGetter interface {
	InitVal(addr uint64) Scalar
}
