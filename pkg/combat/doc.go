// Package combat resolves initiative, attacks, saving throws and turns.
//
// Every randomized outcome is drawn through a dice.Roller, so an Engine built
// with a seeded or scripted source is fully reproducible. Operations never
// panic: unexpected failures come back as *fault.Error values.
package combat
