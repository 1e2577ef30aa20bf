// Package application contém os casos de uso do guarda: a decisão por requisição
// (bloqueado / estourou o limite / liberado), o registro depois do handler e o
// limite de requisições em voo.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Service.Decide(key) retorna uma Decision; Service.Complete(key) registra.
package application
