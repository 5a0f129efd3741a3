// Package config defines configuration for the wp-download CLI.
//
// Two kinds of configuration exist:
//   - The dump catalogue, an INI file (default ~/.wpdownloadrc) naming the
//     dump server, path templates, and which languages and file types are
//     enabled.
//   - Operator options (timeout, retries, force, resume, ...), provided via
//     command-line flags or WPDOWNLOAD_ environment variables and bound with
//     viper.
//
// # Catalogue Format
//
//	[Configuration]
//	base_url = https://dumps.wikimedia.org/
//
//	[Templates]
//	language_dir_format = ${langcode}wiki
//	file_format = ${langcode}wiki-${date}-${filename}.${filetype}
//
//	[Files]
//	pages-articles = yes
//	redirect = no
//
//	[Filetypes]
//	pages-articles = xml.bz2
//	redirect = sql.gz
//
//	[Languages]
//	en = yes
//	de = no
//
// # Errors
//
// Every catalogue failure is returned as an *Error carrying the file path and,
// where applicable, the section and template name. Use errors.Is with
// ErrParse, ErrValue, ErrOption, ErrTemplate or ErrTemplateMissing to
// distinguish them.
package config
