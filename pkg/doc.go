// Package dupsample finds duplicate files by sampling their contents.
//
// Files are first partitioned by size. Within a size, each new file is compared
// against a tree of sparse fingerprints: a handful of block-sized chunks at
// random offsets are hashed and compared, trial by trial, so that most distinct
// files are told apart after reading only a few blocks. Files that survive every
// trial are optionally confirmed with a full-content digest.
//
// # Core API
//
// The simplest entry point walks directories and returns duplicate groups:
//
//	groups, stats, err := dupsample.FindDuplicates(ctx, []string{"/data"}, dupsample.PipelineConfig{
//		Options: dupsample.DefaultOptions(),
//	})
//	for _, group := range groups {
//		fmt.Printf("%s: %v\n", group.Keep, group.Files[1:])
//	}
//
// For streaming results, build a Pipeline and pass a PairFunc to Run. For
// custom enumeration, drive a Classifier directly:
//
//	engine, _ := dupsample.NewDigestEngine(alg, 4096)
//	c, _ := dupsample.NewClassifier(dupsample.DefaultOptions(), engine, dupsample.NewSampler(0), nil)
//	res, err := c.Classify(path, size)
//
// # Configuration
//
// Settings live in an INI file read by LoadConfig. Enable debug output with:
//
//	dupsample.SetDebugFlags("sample,tree")
//	dupsample.SetVerboseLevel(2)
//
// Access and modification times of every file read are restored afterwards
// where the process has write permission on the file.
package dupsample
