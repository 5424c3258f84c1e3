// Prints the canonical link vectors the conformance tests pin: the empty
// predicate record, a small populated link in both statement encodings, and
// a signed envelope over it, all from fixed inputs so output never drifts.
package main

import (
	"fmt"

	"github.com/danbev/in-toto-rs/envelope"
	"github.com/danbev/in-toto-rs/keys"
	"github.com/danbev/in-toto-rs/models"
	"github.com/danbev/in-toto-rs/predicate"
	"github.com/danbev/in-toto-rs/statement"
	"github.com/danbev/in-toto-rs/store"
)

func mustSeed(b byte) []byte {
	seed := make([]byte, keys.SeedSize)
	for i := range seed {
		seed[i] = b
	}
	return seed
}

func mustTD(alg, dig string) models.TargetDescription {
	td, err := models.NewTargetDescription(map[string]string{alg: dig})
	if err != nil {
		panic(err)
	}
	return td
}

func printVector(label string, data []byte) {
	id, err := store.CIDFor(data)
	if err != nil {
		panic(err)
	}
	fmt.Printf("%s CID=%s\n", label, id)
	fmt.Printf("---BEGIN %s---\n%s\n---END %s---\n", label, string(data), label)
}

func main() {
	empty, err := predicate.LinkV02FromMetadata(models.LinkMetadata{}).ToBytes()
	if err != nil {
		panic(err)
	}
	printVector("empty-link-v0.2", empty)

	meta := models.NewLinkMetadataBuilder("vector").
		AddMaterial("src/main.c", mustTD("sha256", "ab12")).
		AddProduct("bin/app", mustTD("sha256", "cd34")).
		Env(map[string]string{"LANG": "C"}).
		Command(models.CommandFromString("gcc -o bin/app src/main.c")).
		ByProducts(models.NewByProducts().WithStdout("done\n")).
		Build()

	naive, err := statement.NaiveFromMetadata(meta).ToBytes()
	if err != nil {
		panic(err)
	}
	printVector("naive-link", naive)

	v01, err := statement.V01FromMetadata(meta, predicate.VersionLinkV02)
	if err != nil {
		panic(err)
	}
	v01Bytes, err := v01.ToBytes()
	if err != nil {
		panic(err)
	}
	printVector("statement-v0.1", v01Bytes)

	signer, err := keys.NewEd25519SignerFromSeed(mustSeed(0xA1))
	if err != nil {
		panic(err)
	}
	env, err := envelope.Sign(naive, signer)
	if err != nil {
		panic(err)
	}
	envBytes, err := env.ToBytes()
	if err != nil {
		panic(err)
	}
	printVector("signed-envelope", envBytes)
}
