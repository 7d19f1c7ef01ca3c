// Package schedule holds the skins schedule model: normalized records,
// the league-skin row merger, the fixed column schema with its visibility
// set, run statistics and the snapshot store shared by the API and CLI.
package schedule
