// Package object defines the dynamic object model that shadow wrappers intercept.
//
// An Object is a property bag addressed by string keys with the generic
// operations read, write, has, delete, define, describe and enumerate. Values
// implementing Callable or Constructor can additionally be invoked. Map and
// Func are the built-in implementations; FromNative builds a graph of them from
// decoded JSON or YAML documents.
package object
