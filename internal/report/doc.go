// Package report writes the summary of a download run as YAML.
//
// A report lists every language processed, the dump date used, and the
// outcome of each file. It is meant for operators and cron wrappers that want
// to know what a run did without parsing logs:
//
//	run_id: 7c9e6679-7425-40de-944b-e07fc1f90ae7
//	started: 2023-02-03T04:00:00Z
//	finished: 2023-02-03T05:12:44Z
//	totals:
//	  downloaded: 2
//	  skipped: 1
//	  failed: 0
//	languages:
//	  - language: en
//	    date: "20230201"
//	    files:
//	      - type: pages-articles
//	        status: downloaded
//	        ...
package report
