//gohbond runs a hydrogen bond lifetime analysis described by a YAML
//configuration file, as read by the cfg package.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/rmera/gohbond/cfg"
)

func main() {
	if len(os.Args) != 2 {
		log.Fatal("The path of the configuration file must be specified in the arguments")
	}
	log.Printf("Reading configuration file `%s`\n", os.Args[1])
	c, err := cfg.New(os.Args[1])
	if err != nil {
		log.Fatal(fmt.Errorf("cfg.New: %w", err))
	}
	log.Printf("Tracking %s hydrogen bonds on `%s`\n", c.Mode, c.Traj)
	sol, err := c.Run(func(current, total int) {
		fmt.Fprintf(os.Stderr, "\rwindow %d of %d", current, total)
		if current == total {
			fmt.Fprintln(os.Stderr)
		}
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(sol)
	log.Println("Done")
}
