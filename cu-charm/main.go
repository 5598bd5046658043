package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cuOperator "github.com/gruyaume/oai-5g-cu-operator/internal/controller/cu-operator"
	"github.com/gruyaume/oai-5g-cu-operator/pkg/framework"
	"github.com/gruyaume/oai-5g-cu-operator/pkg/hooktools"
	"github.com/gruyaume/oai-5g-cu-operator/pkg/interfaces/f1"
	"github.com/gruyaume/oai-5g-cu-operator/pkg/interfaces/n2"
	"github.com/gruyaume/oai-5g-cu-operator/pkg/kubernetes"
	"github.com/gruyaume/oai-5g-cu-operator/pkg/model"
	"github.com/gruyaume/oai-5g-cu-operator/pkg/pebble"
	"github.com/gruyaume/oai-5g-cu-operator/pkg/utils"
)

func main() {
	// Process input data through environment variables
	logLevel := utils.EnvOrDefault("GO_LOG", "info")
	env := model.ReadEnvironment(os.Getenv)

	// Setup logging before anything else so code can log errors.
	log := utils.InitializeLogging(logLevel, "cu-charm")

	if env.HookName == "" {
		log.Info("Not running in a Juju hook context, JUJU_DISPATCH_PATH is not set")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tools := hooktools.New(&hooktools.ExecRunner{Log: log.WithName("hooktools")})
	m := model.New(tools, env, log.WithName("model"))

	kube, err := kubernetes.NewInClusterClient(env.ModelName, utils.ContainerName, log.WithName("kubernetes"))
	if err != nil {
		log.Error(err, "Failed to create Kubernetes client")
		os.Exit(1)
	}

	workload, err := pebble.NewSupervisor(utils.ContainerName, fmt.Sprintf(utils.PebbleSocketFmt, utils.ContainerName), log.WithName("pebble"))
	if err != nil {
		log.Error(err, "Failed to create Pebble client")
		os.Exit(1)
	}

	fw := framework.New(&framework.JujuStateStore{Tools: tools, Key: utils.DeferredEventsStateKey}, log.WithName("framework"))

	charm := &cuOperator.CUOperatorCharm{
		AppName:      env.AppName,
		Model:        m,
		AMF:          n2.NewRequirer(fw, m, utils.N2RelationName, log.WithName("n2")),
		F1:           f1.NewProvider(m, utils.F1RelationName),
		LoadBalancer: kube,
		StatefulSet:  kube,
		Service:      kube,
		Workload:     workload,
		Logger:       log.WithName("cu-operator"),
	}
	charm.Register(fw)

	event, err := framework.EventFromEnvironment(env)
	if err != nil {
		log.Error(err, "Failed to read hook context")
		os.Exit(1)
	}

	log.Info("Dispatching hook", "Hook", env.HookName, "Unit", env.UnitName)
	if err := fw.Dispatch(ctx, event); err != nil {
		log.Error(err, "Hook failed", "Hook", env.HookName)
		if logErr := tools.Log(ctx, hooktools.LogError, fmt.Sprintf("%s hook failed: %v", env.HookName, err)); logErr != nil {
			log.Error(logErr, "Failed to write to the unit log")
		}
		os.Exit(1)
	}
}
