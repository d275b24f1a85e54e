package main

import (
	"flag"
	"fmt"
	"os"
	"reflect"

	"github.com/chrissnell/fracgrad/pkg/config"
)

func main() {
	var (
		yamlFile   = flag.String("yaml", "", "Path to YAML configuration file")
		sqliteFile = flag.String("sqlite", "", "Path to SQLite configuration file")
	)
	flag.Parse()

	if *yamlFile == "" || *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <config.yaml> -sqlite <config.db>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("Configuration Comparison Test")
	fmt.Println("===========================")

	fmt.Printf("Loading YAML configuration: %s\n", *yamlFile)
	yamlConfig, err := config.NewYAMLProvider(*yamlFile).LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading YAML config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Loading SQLite configuration: %s\n", *sqliteFile)
	sqliteProvider, err := config.NewSQLiteProvider(*sqliteFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating SQLite provider: %v\n", err)
		os.Exit(1)
	}
	defer sqliteProvider.Close()

	sqliteConfig, err := sqliteProvider.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading SQLite config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nComparison Results:")
	fmt.Println("==================")

	if !compare(yamlConfig, sqliteConfig) {
		os.Exit(2)
	}
	fmt.Println("\nTest completed!")
}

// compare prints a line per difference and reports whether the two
// configurations are equivalent
func compare(yamlConfig, sqliteConfig *config.ConfigData) bool {
	ok := true

	fmt.Printf("Controllers - YAML: %d, SQLite: %d\n", len(yamlConfig.Controllers), len(sqliteConfig.Controllers))
	sqliteByType := make(map[string]config.ControllerData)
	for _, c := range sqliteConfig.Controllers {
		sqliteByType[c.Type] = c
	}

	for _, yamlController := range yamlConfig.Controllers {
		sqliteController, found := sqliteByType[yamlController.Type]
		switch {
		case !found:
			fmt.Printf("✗ Controller %s missing from SQLite\n", yamlController.Type)
			ok = false
		case reflect.DeepEqual(yamlController, sqliteController):
			fmt.Printf("✓ Controller %s matches\n", yamlController.Type)
		default:
			fmt.Printf("✗ Controller %s differs\n", yamlController.Type)
			ok = false
		}
		delete(sqliteByType, yamlController.Type)
	}
	for t := range sqliteByType {
		fmt.Printf("✗ Controller %s only in SQLite\n", t)
		ok = false
	}

	fmt.Println("\nCalculation Settings:")
	yamlCalc := yamlConfig.Calculation.WithDefaults()
	sqliteCalc := sqliteConfig.Calculation.WithDefaults()
	if yamlCalc == sqliteCalc {
		fmt.Println("✓ Calculation settings match")
	} else {
		fmt.Printf("✗ Calculation settings differ: YAML=%+v, SQLite=%+v\n", yamlCalc, sqliteCalc)
		ok = false
	}

	return ok
}
