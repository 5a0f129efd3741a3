// Package progress provides progress reporting for dump transfers.
//
// A Bar draws one line per file, redrawn in place, including completion
// percentage, transfer speed, and ETA.
//
// # Usage
//
//	bar := progress.NewBar("enwiki-20230201-pages-articles.xml.bz2", total, progress.Options{
//	    Output: os.Stdout,
//	})
//
//	bar.Start(offset)
//	defer bar.Finish()
//
//	// after every block
//	bar.Update(read)
//
// # Output Format
//
//	enwiki-20230201-pages-articles.xml.bz2 [*************                 ]  45.2% 9.1 GiB / 20 GiB | 12 MiB/s | ETA: 15m 32s
package progress
