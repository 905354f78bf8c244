// bitgen-manifest-diff compares two build manifests and reports any record
// type whose assigned id or layout fingerprint disagrees between them.
//
// Usage: bitgen-manifest-diff -a manifest-a.pb -b manifest-b.pb
//
// If -bucket is set, -a and -b are treated as S3 keys in that bucket
// instead of local paths.
package main

import (
	"flag"
	"io/ioutil"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/netrep/bitgen/buildmanifest"
)

var (
	manifestAFlag = flag.String("a", "", "path or S3 key of the first manifest")
	manifestBFlag = flag.String("b", "", "path or S3 key of the second manifest")
	bucketFlag    = flag.String("bucket", "", "S3 bucket holding -a and -b; if empty, -a/-b are local paths")
)

func loadManifest(path string) *buildmanifest.Manifest {
	if *bucketFlag != "" {
		sess, err := session.NewSession()
		if err != nil {
			log.Panicf("new AWS session: %v", err)
		}
		m, err := buildmanifest.NewStore(sess, *bucketFlag).Fetch(path)
		if err != nil {
			log.Panicf("fetch %v/%v: %v", *bucketFlag, path, err)
		}
		return m
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		log.Panicf("read %v: %v", path, err)
	}
	m, err := buildmanifest.Unmarshal(data)
	if err != nil {
		log.Panicf("decode %v: %v", path, err)
	}
	return m
}

func main() {
	flag.Parse()
	shutdown := grail.Init()
	defer shutdown()

	if *manifestAFlag == "" || *manifestBFlag == "" {
		log.Panicf("both -a and -b are required")
	}

	a := loadManifest(*manifestAFlag)
	b := loadManifest(*manifestBFlag)

	drift := buildmanifest.Diff(a, b)
	if len(drift) > 0 {
		log.Panicf("manifests %v and %v disagree on: %v", *manifestAFlag, *manifestBFlag, drift)
	}
	log.Debug.Printf("manifests %v and %v agree on all %d records", *manifestAFlag, *manifestBFlag, len(a.Records))
}
