// Package cli implements the interactive offloader console. It plays the
// media-library host: each command fires one lifecycle event against the
// offload service and prints what happened.
//
// Commands
//
//	help                               list commands
//	status                             show the resolved configuration
//	list                               list library entries
//	register <file> [WxH] [name=file@WxH ...]
//	                                   add a library entry (paths relative to the uploads dir)
//	upload <path>                      fire "file uploaded" for a local file
//	generate <id>                      fire "metadata generated" for an entry
//	url <id>                           print the public URL of an entry
//	resolve <url>                      map a local media URL to its remote URL
//	downsize <id> <size>               print the URL and size of a variant
//	srcset <id>                        print the rewritten responsive source list
//	delete <id>                        fire "asset deleted" and drop the entry
//	render [block=<name>] [file]       rewrite HTML from a file or typed input
//	settings                           edit the stored object store settings
//	encrypt <text>                     encrypt a value with the local key
//	stats                              print sync counters
//	exit | quit                        leave
package cli
