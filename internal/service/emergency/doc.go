// Package emergency initiates contact with the user's emergency contact once
// a fall has been confirmed.
package emergency
