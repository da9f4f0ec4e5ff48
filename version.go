package wasmembed

// Version is the library version reported across the C boundary.
// It is a process-lifetime constant.
const Version = "wasm-embed 0.3.1"
