// Package picker implements the directory picker.
//
// At most one pick is in flight. The request lives in a single slot until
// the chooser reports back through OnResult; a second Pick while the slot
// is occupied is answered with PENDING immediately and leaves the first
// request untouched.
//
// Launchers:
//   - ManualLauncher: the chooser runs elsewhere and its answer arrives
//     later through Picker.OnResult (e.g. from an HTTP endpoint)
//   - StaticLauncher: confirms a fixed tree or cancels, for headless hosts
//   - PromptLauncher: asks for a directory on the terminal
package picker
