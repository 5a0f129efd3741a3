// Package dumps locates Wikipedia database dumps on a dump server.
//
// A Locator maps a language code to the ordered sequence of download tasks
// for the enabled file types of the latest dump:
//
//	https://dumps.wikimedia.org/enwiki/                 listing page
//	https://dumps.wikimedia.org/enwiki/20230201/        dump directory
//	https://dumps.wikimedia.org/enwiki/20230201/enwiki-20230201-pages-articles.xml.bz2
//
// The latest dump date is discovered by scanning the language's listing page
// for links of the form <a href="YYYYMMDD/">, unless the operator supplied a
// custom date for that language.
//
// The language code "entities" denotes the Wikidata entity dumps, which live
// under wikidatawiki/entities and use a fixed file name.
package dumps
