// Command s3grep searches the objects of an S3 bucket for a pattern,
// the way grep searches files.
package main

import (
	"os"
)

func main() {
	os.Exit(Execute())
}
