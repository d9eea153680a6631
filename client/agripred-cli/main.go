package main

import "github.com/VarshithKumarK/AgriPredAI/client/agripred-cli/cmd"

func main() {
	cmd.Execute()
}
