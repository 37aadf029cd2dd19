// Package rebuild regenerates the suggestion store from the institute store.
//
// A rebuild deletes every suggestion, streams institutes in batches through the
// populator on a worker pool, bulk-inserts the results, records the run and
// finally asks the search engine to reload. It is not transactional: a failure
// after the delete leaves the store empty or partial until the next rebuild.
package rebuild
