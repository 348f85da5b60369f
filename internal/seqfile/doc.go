// Package seqfile reads target sequence databases.
//
// FASTA is the supported format. Files may be gzip compressed (detected by
// magic bytes) and the path "-" reads standard input. Records are digitized
// straight into a caller-owned sequence.Digital so one buffer serves a whole
// database scan:
//
//	f, err := seqfile.Open("uniprot.fa.gz")
//	if err != nil {
//		return err
//	}
//	defer f.Close()
//	f.SetDigital(abc)
//	sq := sequence.New(abc)
//	for {
//		if err := f.Read(sq); errors.Is(err, io.EOF) {
//			break
//		} else if err != nil {
//			return err
//		}
//		// use sq
//	}
package seqfile
