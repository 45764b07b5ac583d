// Package domain contains the task entity, image labels and the error values
// shared by the store, service and API layers. It has no knowledge of any
// storage engine or transport.
package domain
