// Package serializer converts arbitrary value graphs into JSON-representable
// trees by dispatching on runtime type. A Registry maps exact types to
// converter functions; values without a converter pass through the usual
// encoding/json rules or fail with an UnsupportedTypeError. Built-in
// converters cover gonum dense matrices, gota dataframes, timestamps, and
// json.Number.
package serializer
