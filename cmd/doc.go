// Package cmd holds the hdr-batch command line.
//
//	hdr-batch tonemap  -i in.hdr -s soft.txt -o ./out [-j 4] [--format png]
//	hdr-batch merge    --input-dir ./brackets -n 3 -o ./hdr
//	hdr-batch serve    [--port 8000]
//
// # Configuration Precedence
//
// Highest first:
//
//  1. Command line flags
//  2. HDR_BATCH_<FLAG> environment variables, e.g. HDR_BATCH_THREADS
//  3. HDR_BATCH_<SECTION>_<KEY> environment variables, e.g. HDR_BATCH_BATCH_THREADS
//  4. The --config file
//  5. Built-in defaults
//
// Log lines of a batch are echoed to stdout as they are appended; error lines
// are printed in red and successful ones in green. tonemap and merge exit with
// status 1 when any item did not succeed.
package cmd
