// keygen generates a client-side RSA-OAEP key pair for an identity and
// saves it to a local keyring file. The public half is what registration
// sends to the server; the private half stays in the keyring. With -export
// the pair is also written out as a backup, which is the only way key
// material leaves the ring.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"whisperchat/internal/keys"
)

var (
	identity = flag.String("identity", "", "identity (email) to generate keys for")
	ring     = flag.String("keyring", "keyring.json", "keyring file path")
	export   = flag.String("export", "", "write a key pair backup to this file ('-' for stdout)")
)

func main() {
	flag.Parse()
	log.SetFlags(0)

	if *identity == "" {
		log.Fatal("-identity is required")
	}

	keyring := keys.NewFileKeyring(*ring)

	if _, ok, err := keyring.Load(*identity); err != nil {
		log.Fatal(err)
	} else if !ok {
		kp, err := keys.GenerateKeyPair()
		if err != nil {
			log.Fatal(err)
		}
		if err := keyring.Save(*identity, kp); err != nil {
			log.Fatal(err)
		}
		log.Printf("generated key pair for %s in %s", *identity, *ring)
	} else {
		log.Printf("key pair for %s already exists in %s", *identity, *ring)
	}

	kp, _, err := keyring.Load(*identity)
	if err != nil {
		log.Fatal(err)
	}

	// The public half is safe to print; registration needs it.
	fmt.Println(kp.PublicKey)

	if *export != "" {
		out := os.Stdout
		if *export != "-" {
			f, err := os.OpenFile(*export, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
			if err != nil {
				log.Fatal(err)
			}
			defer f.Close()
			out = f
		}
		if err := keyring.Export(*identity, out); err != nil {
			log.Fatal(err)
		}
	}
}
