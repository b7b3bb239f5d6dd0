// Package plausibility scores relay path candidates and explains the scores.
//
// The package is the pure core of pathscore. Given a normalized
// model.PathCandidate and a validated config.Scoring it:
//
//   - derives three component scores in [0,1] (uptime overlap, bottleneck
//     bandwidth, role stability), substituting a neutral default for any
//     missing attribute and recording the substitution;
//   - derives the shared-AS and shared-country penalties from the entry and
//     exit relays;
//   - combines them into a final score that never exceeds the ceiling;
//   - classifies the final score into a confidence tier; and
//   - produces a structured Explanation whose limitations are never empty.
//
// Every function here is deterministic and free of side effects. Nothing
// blocks and nothing is shared, so callers may score candidates in parallel
// without coordination. Engine binds one configuration snapshot to a batch.
//
// A plausibility score measures how consistent relay metadata is with a
// candidate path. It is not the probability that the path was used.
package plausibility
