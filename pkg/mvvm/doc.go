// Package mvvm provides the UI independent parts of the Model-View-ViewModel
// pattern: a messenger for loosely coupled publish/subscribe, relay commands
// and a view model base with property change notification. A RedisBridge
// carries selected messages between processes.
package mvvm
