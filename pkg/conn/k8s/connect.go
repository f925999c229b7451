package k8s

import (
	"os"
	"path/filepath"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"
)

// Connect creates a kubernetes client.
//
// kubeconfig is searched from, in order of priority (the last is the most),
//
// - `~/.kube/config`
//
// - environmental variable `KUBECONFIG`
//
// - the argument kubeconfig, if not empty.
//
// When no files are found, in-cluster config is used.
func Connect(kubeconfig string) (kubernetes.Interface, error) {
	path := ""
	if home := homedir.HomeDir(); home != "" {
		path = filepath.Join(home, ".kube", "config")
	}
	if k := os.Getenv("KUBECONFIG"); k != "" {
		path = k
	}
	if kubeconfig != "" {
		path = kubeconfig
	}

	if path != "" {
		if stat, err := os.Stat(path); err != nil || stat.IsDir() {
			path = ""
		}
	}

	var config *rest.Config
	var err error
	if path == "" {
		config, err = rest.InClusterConfig()
	} else {
		config, err = clientcmd.BuildConfigFromFlags("", path)
	}
	if err != nil {
		return nil, err
	}

	return kubernetes.NewForConfig(config)
}
