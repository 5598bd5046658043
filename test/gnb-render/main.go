package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	cuOperator "github.com/gruyaume/oai-5g-cu-operator/internal/controller/cu-operator"
	"github.com/gruyaume/oai-5g-cu-operator/pkg/gnbconfig"
)

func main() {
	var cuAddr, amfAddr, output string
	config := cuOperator.DefaultCharmConfig()

	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)

	flag.StringVar(&cuAddr, "cu-addr", "",
		"IPv4 address of the CU load balancer, used for the F1 and NG interfaces.\n"+
			"Example: -cu-addr 1.2.3.4\n")

	flag.StringVar(&amfAddr, "amf-addr", "",
		"IPv4 address published by the AMF over fiveg-n2.\n"+
			"Example: -amf-addr 5.6.7.8\n")

	flag.StringVar(&output, "o", "",
		"File to write the rendered gnb.conf to. Defaults to stdout.\n")

	flag.StringVar(&config.MCC, "mcc", config.MCC, "Mobile Country Code.\n")
	flag.StringVar(&config.MNC, "mnc", config.MNC, "Mobile Network Code.\n")
	flag.StringVar(&config.MNCLength, "mnc-length", config.MNCLength, "Number of digits of the Mobile Network Code.\n")
	flag.StringVar(&config.NSSAISST, "nssai-sst", config.NSSAISST, "Slice/Service Type.\n")
	flag.StringVar(&config.NSSAISD, "nssai-sd", config.NSSAISD, "Slice Differentiator.\n")
	flag.IntVar(&config.F1Port, "f1-port", config.F1Port, "Local F1 port of the CU.\n")
	flag.IntVar(&config.S1UPort, "s1u-port", config.S1UPort, "NG-U port of the CU.\n")

	flag.Parse()

	if cuAddr == "" {
		log.Printf("\"-cu-addr\" is required.\n")
		return
	}
	if amfAddr == "" {
		log.Printf("\"-amf-addr\" is required.\n")
		return
	}

	content, err := gnbconfig.Render(config.WorkloadConfig(cuAddr, amfAddr))
	if err != nil {
		log.Fatalf("error rendering gnb.conf: %v", err)
	}

	if output == "" {
		fmt.Println(content)
		return
	}
	if err := os.WriteFile(output, []byte(content), 0644); err != nil {
		log.Fatalf("error writing %s: %v", output, err)
	}
	log.Printf("Wrote %s", output)
}
