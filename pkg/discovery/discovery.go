// Package discovery locates a metadata store served in kubernetes.
package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"

	kerr "github.com/opst/pipeline-lineage/pkg/domain/errors"
	"github.com/opst/pipeline-lineage/pkg/utils/retry"
	corev1 "k8s.io/api/core/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// Target is a Service to be located.
type Target struct {
	Namespace string
	Service   string

	// name of the port. Empty means the first port of the Service.
	Port string
}

// Locate returns "host:port" of the Service.
//
// The host is the cluster IP of the Service, or its DNS name for headless Services.
//
// # Returns
//
// - string: "host:port"
//
// - error:
// errors.Missing when the Service or the port is not found.
// An error wrapping retry.ErrRetry when the Service has no ready endpoints yet.
func Locate(ctx context.Context, clientset kubernetes.Interface, t Target) (string, error) {
	svc, err := clientset.CoreV1().Services(t.Namespace).Get(ctx, t.Service, metav1.GetOptions{})
	if k8serrors.IsNotFound(err) {
		return "", kerr.Missing{Table: "Service", Identity: t.Namespace + "/" + t.Service}
	} else if err != nil {
		return "", err
	}

	port, ok := portOf(svc, t.Port)
	if !ok {
		return "", kerr.Missing{
			Table:    "Service " + t.Namespace + "/" + t.Service,
			Identity: fmt.Sprintf("port %q", t.Port),
		}
	}

	ready, err := hasReadyAddress(ctx, clientset, t)
	if err != nil {
		return "", err
	}
	if !ready {
		return "", fmt.Errorf("%w: service %s/%s has no ready endpoints", retry.ErrRetry, t.Namespace, t.Service)
	}

	host := svc.Spec.ClusterIP
	if host == "" || host == corev1.ClusterIPNone {
		host = fmt.Sprintf("%s.%s.svc", svc.Name, svc.Namespace)
	}
	return net.JoinHostPort(host, strconv.Itoa(int(port.Port))), nil
}

func portOf(svc *corev1.Service, name string) (corev1.ServicePort, bool) {
	if len(svc.Spec.Ports) == 0 {
		return corev1.ServicePort{}, false
	}
	if name == "" {
		return svc.Spec.Ports[0], true
	}
	for _, p := range svc.Spec.Ports {
		if p.Name == name {
			return p, true
		}
	}
	return corev1.ServicePort{}, false
}

func hasReadyAddress(ctx context.Context, clientset kubernetes.Interface, t Target) (bool, error) {
	ep, err := clientset.CoreV1().Endpoints(t.Namespace).Get(ctx, t.Service, metav1.GetOptions{})
	if k8serrors.IsNotFound(err) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	for _, s := range ep.Subsets {
		if len(s.Addresses) != 0 {
			return true, nil
		}
	}
	return false, nil
}
