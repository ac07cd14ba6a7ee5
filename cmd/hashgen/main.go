// hashgen imprime o hash bcrypt usado em APP_DEMO_PASSWORD_HASH.
package main

import (
	"flag"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/example/model-workshop/internal/auth"
)

func main() {
	cost := flag.Int("cost", bcrypt.DefaultCost, "custo do bcrypt")
	flag.Parse()

	password := auth.DefaultPassword
	if flag.NArg() > 0 {
		password = flag.Arg(0)
	}

	hash, err := auth.HashPassword(password, *cost)
	if err != nil {
		fmt.Fprintln(os.Stderr, "erro ao gerar hash:", err)
		os.Exit(1)
	}
	fmt.Println(string(hash))
}
